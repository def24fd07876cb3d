// Package wire defines the byte layouts exchanged between ranks.
//
// Three payloads exist, all big-endian and length-checked on decode:
//
//	records     uint32 body length, then per record name\0description\0residues\0
//	descriptor  five int64: group1 size, id1, id2 (or -1), score, pattern length
//	pattern     pattern length × 2 bytes: group1 gap flag, group2 gap flag
//
// Every decoder rejects input that the matching encoder could not have
// produced; callers treat such errors as protocol violations.
package wire
