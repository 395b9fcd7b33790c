// Package registry is the catalog of node types a blueprint can contain.
//
// Each entry carries display metadata (name, description, category, tags,
// icon) and the configuration schema the editor renders as a form. Schemas
// may carry CEL rules evaluated against the node's config.
//
// Components:
//   - Manager: thread-safe catalog with lookup, search and validation
//   - Seeder: loads .yaml/.yml/.toml catalog extensions on startup
//
// Unknown types never fail a lookup: Resolve returns a generic entry in the
// "other" category.
//
// Example Usage:
//
//	reg, err := registry.Default()
//	entry := reg.Resolve("erc20-stylus")
//	issues := reg.ValidateConfig("erc20-stylus", node.Data.Config)
package registry
