// Package html extracts readable text from HTML documents. Scripts, styles
// and other non-content elements are dropped, block elements become line
// breaks, and entities are decoded.
package html
