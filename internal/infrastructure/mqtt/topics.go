package mqtt

import (
	"fmt"
	"strings"
)

// Topic roots.
const (
	TopicPrefix       = "marketplace"
	TopicPrefixSystem = "marketplace/system"
)

// Product event actions carried in the topic's last segment.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionRestored = "restored"
)

// Topics builds marketplace topic names.
//
//	mqtt.Topics{}.ProductEvent("Home & Garden", mqtt.ActionCreated)
//	// "marketplace/products/home-&-garden/created"
type Topics struct{}

// ProductEvent returns the topic for a product change in category.
func (Topics) ProductEvent(category, action string) string {
	return fmt.Sprintf("%s/products/%s/%s", TopicPrefix, TopicSegment(category), action)
}

// CategoryEvents matches every product event in one category.
func (Topics) CategoryEvents(category string) string {
	return fmt.Sprintf("%s/products/%s/+", TopicPrefix, TopicSegment(category))
}

// AllProductEvents matches every product event.
func (Topics) AllProductEvents() string {
	return TopicPrefix + "/products/#"
}

// SystemStatus is the retained online/offline topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ParseProductEvent splits a product event topic into its category segment
// and action. ok is false for any other topic.
func ParseProductEvent(topic string) (categorySegment, action string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "products" {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

// TopicSegment lowercases s and replaces characters that are not allowed or
// are awkward in a topic level (spaces, wildcards, separators) with '-'.
func TopicSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '+', '#', 0:
			return '-'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
