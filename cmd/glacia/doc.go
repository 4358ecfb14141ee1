// Command glacia is the CLI for the Glacia creative media workstation.
//
// It generates images and videos from prompts, mixes soundtracks into
// generated videos, and keeps a local, per-user history of every creation.
package main
