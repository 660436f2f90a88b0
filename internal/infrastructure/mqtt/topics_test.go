package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"product event", topics.ProductEvent("Lighting", ActionCreated), "marketplace/products/lighting/created"},
		{"spaces", topics.ProductEvent("Home & Garden", ActionDeleted), "marketplace/products/home-&-garden/deleted"},
		{"category wildcard", topics.CategoryEvents("Books"), "marketplace/products/books/+"},
		{"all products", topics.AllProductEvents(), "marketplace/products/#"},
		{"system status", topics.SystemStatus(), "marketplace/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopicSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Electronics", "electronics"},
		{"  Toys ", "toys"},
		{"a/b", "a-b"},
		{"x+y#z", "x-y-z"},
	}

	for _, tt := range tests {
		if got := TopicSegment(tt.in); got != tt.want {
			t.Errorf("TopicSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseProductEvent(t *testing.T) {
	tests := []struct {
		topic        string
		wantCategory string
		wantAction   string
		wantOk       bool
	}{
		{"marketplace/products/lighting/created", "lighting", "created", true},
		{"marketplace/products/books/restored", "books", "restored", true},
		{"marketplace/system/status", "", "", false},
		{"marketplace/products/lighting", "", "", false},
		{"other/products/lighting/created", "", "", false},
		{"marketplace/products//created", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			cat, action, ok := ParseProductEvent(tt.topic)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if cat != tt.wantCategory || action != tt.wantAction {
				t.Errorf("got (%q, %q), want (%q, %q)", cat, action, tt.wantCategory, tt.wantAction)
			}
		})
	}
}

func TestParseProductEvent_RoundTrip(t *testing.T) {
	topic := Topics{}.ProductEvent("Sports", ActionUpdated)

	cat, action, ok := ParseProductEvent(topic)
	if !ok {
		t.Fatalf("ParseProductEvent(%q) not ok", topic)
	}
	if cat != "sports" || action != ActionUpdated {
		t.Errorf("got (%q, %q), want (sports, updated)", cat, action)
	}
}
