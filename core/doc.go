// Package core holds the shared data model of the Argus detection engines:
// normalized events, correlation and SIGMA rule definitions, match and alert
// value objects, the dotted-path field resolver, and the bounded worker pool
// used for batch evaluation.
package core
