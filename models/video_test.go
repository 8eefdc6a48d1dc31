package models

import "testing"

func TestVideoSessionPeerOf(t *testing.T) {
	session := VideoSession{CallerID: "caller", CalleeID: "callee"}

	tests := []struct {
		name     string
		userID   string
		hasPeer  bool
		expected string
	}{
		{name: "caller sees callee", userID: "caller", hasPeer: true, expected: "callee"},
		{name: "callee sees caller", userID: "callee", hasPeer: true, expected: "caller"},
		{name: "outsider has no peer", userID: "stranger", hasPeer: false, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.HasPeer(tt.userID); got != tt.hasPeer {
				t.Errorf("HasPeer(%q) = %v, expected %v", tt.userID, got, tt.hasPeer)
			}
			if got := session.PeerOf(tt.userID); got != tt.expected {
				t.Errorf("PeerOf(%q) = %q, expected %q", tt.userID, got, tt.expected)
			}
		})
	}
}
