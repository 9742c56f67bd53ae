// Package node implements the sensor-node side of the protocol: a
// responder that announces itself with a descriptor and answers
// identify, status, and restart commands with matching results.
//
// The QT Py hardware runs its own CircuitPython firmware; this package
// exists so a host can stand in for a node during bench tests and
// demos, and so the controller's protocol paths can be exercised end to
// end without hardware.
package node
