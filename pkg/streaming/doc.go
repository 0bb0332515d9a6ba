/*
Package streaming holds the bounded queues used to move values between
goroutines.

  - channel: generic BackpressureChannel with Block, Drop, DropOldest and
    Error strategies

The executor uses a BackpressureChannel with the Error strategy as its wake
channel, and pkg/actor uses one per actor as the mailbox.
*/
package streaming
