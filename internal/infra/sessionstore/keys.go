package sessionstore

const (
	sessionKeyPrefix = "booking:session:"
	commitKeySuffix  = ":commit"
	chargeKeyPrefix  = "booking:charge:"
	chargeDeadlines  = "booking:charges:deadlines"
	eventKeyPrefix   = "booking:webhook:event:"
)

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func commitKey(id string) string {
	return sessionKeyPrefix + id + commitKeySuffix
}

func chargeKey(reference string) string {
	return chargeKeyPrefix + reference
}

func eventKey(id string) string {
	return eventKeyPrefix + id
}
