// Package hptune builds the study specification payloads of a managed
// hyperparameter tuning job: the metrics to optimise and the parameters to
// search. Payloads are JSON arrays in the proto JSON mapping of the tuning
// service, so they can be handed to the job verbatim.
//
// Serialisation is lossless: numeric bounds keep their exact value, the scale
// type round-trips and discrete or categorical values keep their order.
package hptune
