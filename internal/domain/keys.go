package domain

// KeyPrefix namespaces every key the engine writes to the store.
const KeyPrefix = "imagedex:"
