package queue

// Deliver exposes the settle logic of the consume loop to the specs.
var Deliver = (*Consumer).deliver
