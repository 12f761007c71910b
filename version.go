package mayausd

// Version is the release of the library and the usdrename tool.
const Version = "0.3.0"
