// Package uploader submits captured content to the central server.
package uploader
