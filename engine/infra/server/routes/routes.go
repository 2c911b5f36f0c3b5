package routes

// Base is the prefix of every JSON endpoint.
func Base() string { return "/api" }

func Chat() string { return Base() + "/chat" }

// ChatWelcome returns the greeting shown when the widget opens.
func ChatWelcome() string { return Chat() + "/welcome" }

func Knowledge() string { return Base() + "/knowledge" }

func VapiOutboundCall() string { return Base() + "/vapi-outbound-call" }

func Leads() string { return Base() + "/leads" }

func Newsletter() string { return Base() + "/newsletter" }

func AnalyticsEvents() string { return Base() + "/analytics/events" }

func Health() string { return Base() + "/health" }
