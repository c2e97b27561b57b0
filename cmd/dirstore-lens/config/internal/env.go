package internal

// EnvPrefix is a prefix of ENV variables related
// to lens configuration.
const EnvPrefix = "dirstore"

// EnvSeparator is a section separator in ENV variables.
const EnvSeparator = "_"
