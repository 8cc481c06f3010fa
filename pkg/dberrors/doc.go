/*
Package dberrors classifies dbarena failures into the kinds described by
the error handling design: engine-unavailable, image/pull failure, port
conflict, readiness timeout, init-script failure, seeder batch failure,
workload operation failure, metrics sample failure, and user cancellation.

Errors are tagged by Kind rather than distinguished by Go type, carry
structured context (component, operation, container id, parsed detail),
and print with color to a terminal via Print.
*/
package dberrors
