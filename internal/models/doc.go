// Package models holds concrete example systems and a small registry used
// by the CLI.
package models
