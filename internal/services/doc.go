// Package services holds cross-cutting helpers shared by Glacia's service
// packages: the sentinel error taxonomy with the Wrap helper, and context
// annotations (owner key, request correlation id) that loggers and clients
// read back out.
package services
