package hmrruntime

// ABIVersion is the version of the context ABI that factories are compiled
// against: export declaration, dynamic re-export, namespace import, require,
// async import and dispose/accept registration.
//
// Chunk manifests carry the ABI version they were produced for; package
// chunk rejects manifests whose version is incompatible. The major number
// changes only when the ABI surface breaks.
const ABIVersion = "1.2.0"
