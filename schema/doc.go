// Package schema defines the ordered feature set a model bundle requires and
// validates raw customer records against it.
//
// A Schema is immutable after construction. Validate turns a loosely typed
// record (as decoded from JSON or an HTML form) into a FeatureVector whose
// values are ordered by the schema. Keys the schema does not declare are
// ignored; absent keys are reported together in a single ValidationError.
package schema
