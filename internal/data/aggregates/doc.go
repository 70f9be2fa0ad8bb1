// Package aggregates owns transaction boundaries for catalog writes and maps
// driver errors onto coded catalog errors.
package aggregates
