// Package vision turns captured images into text descriptions using a vision
// capable model. Providers exist for OpenAI compatible chat APIs and for the
// Gemini REST API, plus a no-op provider for setups that defer description to
// the server.
package vision
