package session

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeKeyDistinguishesAnonymousTypes(t *testing.T) {
	a := reflect.TypeOf(struct {
		ID int64 `sqlbind:"id,pk"`
	}{})
	b := reflect.TypeOf(struct {
		SKU string `sqlbind:"sku,pk"`
	}{})

	assert.NotEqual(t, typeKey(a), typeKey(b),
		"distinct anonymous models must not share a build flight")
	assert.NotEqual(t, typeKey(a), typeKey(reflect.TypeOf(VersionRecord{})))
}

func TestTypeKeyNamedTypes(t *testing.T) {
	assert.Equal(t,
		"github.com/leapstack-labs/sqlbind/pkg/session.VersionRecord",
		typeKey(reflect.TypeOf(VersionRecord{})))
}
