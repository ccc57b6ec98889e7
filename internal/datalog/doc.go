// Package datalog writes rate-limited CSV acquisition logs.
//
// One file is created per feed activation, named after the logged
// parameters and the open timestamp. Each line carries a formatted
// timestamp followed by the parameter values. A minimum interval between
// lines keeps the file small enough to downlink; samples arriving faster
// are dropped.
package datalog
