package flathub

import (
	"encoding/json"
)

// The remote API is inconsistent about key names across endpoints, so
// every logical field carries an ordered list of candidate keys tried in
// priority order.
var (
	appIDAliases   = []string{"app_id", "id", "flatpakAppId"}
	iconURLAliases = []string{"iconDesktopUrl", "icon"}
	hitIDAliases   = []string{"app_id", "flatpakAppId"}
	hitsAliases    = []string{"hits", "apps"}
)

func stringAlias(fields map[string]interface{}, aliases []string) (string, bool) {
	for _, key := range aliases {
		if value, ok := fields[key].(string); ok {
			return value, true
		}
	}
	return "", false
}

func optionalString(fields map[string]interface{}, key string) *string {
	if value, ok := fields[key].(string); ok {
		return &value
	}
	return nil
}

// ParseAppRecord parses one appstream payload. The raw payload is kept on
// the record so callers can persist fields the parser does not model.
func ParseAppRecord(data []byte) (*AppRecord, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ParseError{Err: err}
	}

	appID, ok := stringAlias(fields, appIDAliases)
	if !ok {
		return nil, &ParseError{Field: "app_id, id or flatpakAppId"}
	}

	var iconURL *string
	if icon, ok := stringAlias(fields, iconURLAliases); ok {
		iconURL = &icon
	}

	return &AppRecord{
		AppID:       appID,
		Name:        optionalString(fields, "name"),
		Summary:     optionalString(fields, "summary"),
		Description: optionalString(fields, "description"),
		InstallRef:  appID,
		IconURL:     iconURL,
		Raw:         json.RawMessage(data),
	}, nil
}

func parseCollection(data []byte, allowAppsKey bool) (*CollectionResult, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ParseError{Err: err}
	}

	aliases := hitsAliases[:1]
	if allowAppsKey {
		aliases = hitsAliases
	}

	var hits []interface{}
	found := false
	for _, key := range aliases {
		if array, ok := fields[key].([]interface{}); ok {
			hits = array
			found = true
			break
		}
	}
	if !found {
		return nil, &ParseError{Field: "hits array"}
	}

	appIDs := make([]string, 0, len(hits))
	for _, hit := range hits {
		entry, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if appID, ok := stringAlias(entry, hitIDAliases); ok {
			appIDs = append(appIDs, appID)
		}
	}

	totalHits := int64(len(appIDs))
	if reported, ok := fields["totalHits"].(float64); ok {
		totalHits = int64(reported)
	}

	return &CollectionResult{
		AppIDs:    appIDs,
		TotalHits: totalHits,
	}, nil
}
