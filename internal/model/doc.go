// Package model contains the shared interfaces and the exposure
// notification data model used by the upload client.
package model
