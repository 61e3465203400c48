package vision

// VerbosePrompt asks for an exhaustive description. Devices use it so the
// stored record carries as much detail as possible.
const VerbosePrompt = "What is in this image? Be as specific as possible, and list all attributes about the detected objects.  Provide relative locations of objects. Provide your best guesses on scene this is and your reasoning for these guesses."

// ConcisePrompt asks for a terse description. The server uses it when filling
// in descriptions for uploads that arrived without one.
const ConcisePrompt = "What is in this image? List all detected objects.  Provide your best guesses on what scene this is. Be concise in your answer and drop unnecessary words like the or and in your response. Strive to minimize word count in your answer"
