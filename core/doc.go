// Package pipeline implements a real-time full-duplex audio loop over one
// streaming session: microphone frames go out while synthesized audio,
// transcript updates and diagnostics come back in, and a mic gate suppresses
// the outbound path while received audio is playing so it cannot feed back
// into capture.
//
// The pieces compose leaf-first: a FrameSource normalizes device capture
// into fixed frames, a SilenceInjector substitutes cadence-identical silence
// while the MicGate is closed, the session package owns the connection, the
// router fans received events out to the playback sink and the transcript
// aggregator, and playback lifecycle events close the loop by driving the
// gate. Pipeline assembles all of it behind one Run call.
package pipeline
