// Package partkv implements the on-host serving core for a partitioned,
// versioned, read-mostly key-value store: a Handler that routes a
// (domainId, key) lookup to the correct on-disk PartitionReader through a
// bounded worker pool, plus the HandlerAssembler that binds that topology
// together from externally supplied cluster metadata at startup.
package partkv
