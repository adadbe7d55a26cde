// Package canon provides canonical JSON serialization for option values.
//
// Two values are considered equal by the settings engine when their canonical
// forms are byte-identical. The canonical form follows RFC 8785 ordering rules:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping
//   - Strings NFC normalized
//   - Integral numbers printed without a fraction, so 14 and 14.0 compare equal
//
// Unlike the wire format used for profiles, canonical JSON tolerates null and
// floats: option bags routinely carry both. Function values cannot be
// serialized and always compare as different.
package canon
