package kafka

import "fmt"

// TopicPrefix namespaces all topics produced by storage rental services.
const TopicPrefix = "storage"

// Topic builds a topic name of the form "<prefix>.<domain>.<action>",
// e.g. Topic("user", "registered") -> "storage.user.registered".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
