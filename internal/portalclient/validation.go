package portalclient

import (
	"fmt"

	"github.com/muurk/wifiprov/internal/radio"
)

// ValidateSSID checks the 802.11 SSID length limit.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return newValidationError("WiFi SSID cannot be empty")
	}
	if len(ssid) > radio.MaxSSIDLength {
		return newValidationError(fmt.Sprintf("WiFi SSID too long (max %d bytes): %d bytes", radio.MaxSSIDLength, len(ssid)))
	}
	return nil
}

// ValidatePassword checks the passphrase length. Empty is an open network.
func ValidatePassword(password string) error {
	if len(password) > radio.MaxPassphraseLength {
		return newValidationError(fmt.Sprintf("WiFi password too long (max %d bytes): %d bytes", radio.MaxPassphraseLength, len(password)))
	}
	return nil
}
