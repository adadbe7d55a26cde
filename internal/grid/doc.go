// Package grid defines the typed contract between the settings engine and a
// host data-grid component.
//
// The host is treated as an opaque, partially-capable surface. Instead of
// probing methods at runtime, an adapter declares its capabilities up front
// through Surface: every capability is a small interface, and a nil field
// means the capability is absent (for example while the component is still
// initializing). Call sites check the field before calling and treat a
// missing capability as a no-op.
//
// The package also holds the native column configuration types. Function
// valued configuration (computed styles, value formatters) is never
// persisted: ColumnDef carries the declarative policy, and the callbacks are
// regenerated from it when a config is loaded.
package grid
