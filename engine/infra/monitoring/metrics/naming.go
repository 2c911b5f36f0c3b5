package metrics

import "strings"

// Prefix namespaces every metric exported by the service.
const Prefix = "pharens_"

// MetricName prefixes name unless it already carries the namespace.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem builds pharens_<subsystem>_<name>.
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	if name == "" {
		return MetricName(subsystem)
	}
	if subsystem == "" {
		return MetricName(name)
	}
	return MetricName(subsystem + "_" + name)
}
