// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketTenantsSuffix is appended to the configured db_name to form the
	// KV bucket holding tenant documents, keyed by tenant_name.
	KVBucketTenantsSuffix = "-tenants"

	// KVBucketMLsSuffix is appended to the configured db_name to form the KV
	// bucket holding mailing-list documents, keyed by ml_name.
	KVBucketMLsSuffix = "-mls"
)
