// Package device is the control surface the host collaborator drives:
// the user-space equivalent of the binder device file. The host owns the
// thin plumbing (file descriptors, ioctl decoding, user-memory copies)
// and calls in with whole buffers, a sender identity, and a non-blocking
// flag; the device owns process records and hands each call to the
// transaction router.
//
// Host calls: Open, Release, WriteRead, SetMaxThreads,
// SetContextManager, ThreadExit, Version.
package device
