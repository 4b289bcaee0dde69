// Package services contains the core business logic, wired together
// from driven ports and exposed through driving ports. Services hold no
// transport or storage concerns of their own.
package services
