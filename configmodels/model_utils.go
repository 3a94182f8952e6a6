// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0

package configmodels

// StringMapToAny widens relation data so it can be fed to a JSON schema
// validator.
func StringMapToAny(data map[string]string) map[string]any {
	ret := make(map[string]any, len(data))
	for k, v := range data {
		ret[k] = v
	}
	return ret
}
