// Package logger provides structured logging built on zerolog.
//
// A package-level default logger is available through GetLogger for
// components that are not handed an explicit instance. Commands call
// Initialize once after configuration is loaded.
package logger
