// Package supervisor drives the station connection state machine.
//
// States and transitions:
//
//	disconnected --submit--> connecting
//	failed       --submit--> connecting
//	connected    --submit--> connecting
//	connecting   --got_ip--> connected      (retry counter reset, handler fired)
//	connected    --lost----> connecting     (retry counter reset, then one retry)
//	connecting   --give_up-> failed         (after MaxRetries re-joins)
//
// A disconnect while connecting re-issues the join and increments the retry
// counter until it reaches the limit; the next disconnect gives up.
// Credentials submitted while connecting replace the target without
// resetting the counter.
//
// Supervisor.Run is the only goroutine that mutates state or calls the
// connected handler. SubmitCredentials, Snapshot and Watch are safe to call
// from any goroutine.
package supervisor
