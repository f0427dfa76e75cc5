package session_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/session"
)

func TestSession_StoreAndGet_LatestVersion(t *testing.T) {
	s := session.New("key1")

	s.Store(fhir.Patient, "p1", 1, &fhir.PatientResource{ID: "p1", BirthDate: "1990-01-01"})
	s.Store(fhir.Patient, "p1", 2, &fhir.PatientResource{ID: "p1", BirthDate: "1991-02-02"})

	latest, ok := s.Get(fhir.Patient, "p1", nil)
	require.True(t, ok)
	assert.Equal(t, "1991-02-02", latest.(*fhir.PatientResource).BirthDate)

	v1 := 1
	first, ok := s.Get(fhir.Patient, "p1", &v1)
	require.True(t, ok)
	assert.Equal(t, "1990-01-01", first.(*fhir.PatientResource).BirthDate)

	version, ok := s.LatestVersion(fhir.Patient, "p1")
	require.True(t, ok)
	assert.Equal(t, 2, version)
}

func TestSession_DeleteTombstonesAndIsDeletedVsExists(t *testing.T) {
	s := session.New("key1")
	s.Store(fhir.Patient, "p1", 1, &fhir.PatientResource{ID: "p1"})

	assert.True(t, s.Exists(fhir.Patient, "p1"))
	assert.False(t, s.IsDeleted(fhir.Patient, "p1"))

	s.Delete(fhir.Patient, "p1")

	assert.False(t, s.Exists(fhir.Patient, "p1"))
	assert.True(t, s.IsDeleted(fhir.Patient, "p1"))

	// an id that was never created is neither existing nor deleted
	assert.False(t, s.Exists(fhir.Patient, "never"))
	assert.False(t, s.IsDeleted(fhir.Patient, "never"))
}

func TestSession_StoreAfterDelete_Undeletes(t *testing.T) {
	s := session.New("key1")
	s.Store(fhir.Patient, "p1", 1, &fhir.PatientResource{ID: "p1"})
	s.Delete(fhir.Patient, "p1")
	require.True(t, s.IsDeleted(fhir.Patient, "p1"))

	s.Store(fhir.Patient, "p1", 2, &fhir.PatientResource{ID: "p1"})

	assert.False(t, s.IsDeleted(fhir.Patient, "p1"))
	assert.True(t, s.Exists(fhir.Patient, "p1"))
}

func TestSession_GetAll_ExcludesTombstoned(t *testing.T) {
	s := session.New("key1")
	s.Store(fhir.Patient, "p1", 1, &fhir.PatientResource{ID: "p1"})
	s.Store(fhir.Patient, "p2", 1, &fhir.PatientResource{ID: "p2"})
	s.Delete(fhir.Patient, "p2")

	all := s.GetAll(fhir.Patient)
	require.Len(t, all, 1)
	assert.Equal(t, "p1", all[0].ResourceID())
}

func TestSession_NextID_MonotonicPerType(t *testing.T) {
	s := session.New("key1")
	assert.Equal(t, 1, s.NextID(fhir.Patient))
	assert.Equal(t, 2, s.NextID(fhir.Patient))
	assert.Equal(t, 1, s.NextID(fhir.Observation), "counters are independent per resource type")
}

func TestSession_IsExpired(t *testing.T) {
	s := session.New("key1")
	assert.False(t, s.IsExpired(time.Now()), "no expiry set means never expires")

	past := time.Now().Add(-time.Minute)
	s.SetExpiry(&past)
	assert.True(t, s.IsExpired(time.Now()))
}

func TestSession_HydrateOnce_RunsExactlyOnceUnderConcurrency(t *testing.T) {
	s := session.New("key1")
	var calls int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HydrateOnce(func() {
				atomic.AddInt64(&calls, 1)
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestSession_Clear_ResetsStateAndHydration(t *testing.T) {
	s := session.New("key1")
	s.Store(fhir.Patient, "p1", 1, &fhir.PatientResource{ID: "p1"})
	s.SetHydrated(true)

	s.Clear()

	assert.False(t, s.Exists(fhir.Patient, "p1"))
	assert.False(t, s.Hydrated())
}
