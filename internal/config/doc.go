// Package config loads and saves the wifiprov YAML configuration.
//
// The file is read from the platform's config directory unless a path is
// given:
//   - Linux: $XDG_CONFIG_HOME/wifiprov/config.yaml or $HOME/.config/wifiprov/config.yaml
//   - macOS: $HOME/.config/wifiprov/config.yaml
//   - Windows: %LOCALAPPDATA%\wifiprov\config.yaml
//
// A minimal file only needs the fields that differ from Default:
//
//	version: 1
//	access_point:
//	  ssid: my-device-setup
//	  password: provision-me
//	bus:
//	  broker_url: mqtt://broker.local
//	driver:
//	  kind: sim
//	  networks:
//	    - ssid: HomeNet
//	      rssi: -48
//	      auth: WPA2_PSK
//	      password: secret123
//
// The access point and broker passwords are stored in clear text, so Save
// writes the file with mode 0600. Station credentials submitted through
// the portal are never written here.
package config
