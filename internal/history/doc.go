// Package history keeps the results of tool invocations per user in MongoDB.
package history
