package models

// SessionStats represents statistics about the sessions currently in the store.
type SessionStats struct {
	TotalSessions     int    `json:"totalSessions"`
	TriggeredSessions int    `json:"triggeredSessions"`
	StorageBackend    string `json:"storageBackend"`
	MemoryUsage       string `json:"memoryUsage"`
}

// ClearSessionsResponse is returned after an admin clears the session store.
type ClearSessionsResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	SessionsCleared int    `json:"sessionsCleared"`
}

// TriggerList is a page of trigger ledger events, newest first.
type TriggerList struct {
	Triggers []TriggerEvent `json:"triggers"`
	Count    int            `json:"count"`
}
