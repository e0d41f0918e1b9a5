package handler

// URLFromEvent returns the url field of event, falling back to
// queryStringParameters.url as sent by API gateways. Missing, empty and
// non-string values all yield "".
func URLFromEvent(event map[string]any) string {
	if u, ok := event["url"].(string); ok && u != "" {
		return u
	}
	switch qs := event["queryStringParameters"].(type) {
	case map[string]any:
		if u, ok := qs["url"].(string); ok {
			return u
		}
	case map[string]string:
		return qs["url"]
	}
	return ""
}
