// Package protocol owns the extrinsic wire contract.
//
// Ownership boundary:
// - frame: compact length prefix and size limits
// - tlv: signature and call argument fields
// - schema: call metadata and argument validation
// - this package: extrinsic decode/encode and call normalization
package protocol
