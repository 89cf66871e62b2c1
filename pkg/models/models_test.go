package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculateProgress(t *testing.T) {
	s := Subject{TotalProgress: 70}
	s.RecalculateProgress()
	assert.Equal(t, 0, s.TotalProgress, "no topics")

	s.Topics = []Topic{{ID: 1, Progress: 80}, {ID: 2, Progress: 45}}
	s.RecalculateProgress()
	assert.Equal(t, 63, s.TotalProgress, "62.5 rounds up")

	s.Topics = append(s.Topics, Topic{ID: 3})
	s.RecalculateProgress()
	assert.Equal(t, 42, s.TotalProgress)
}

func TestSubjectTopic(t *testing.T) {
	s := Subject{Topics: []Topic{{ID: 7, Name: "Optics"}}}
	topic := s.Topic(7)
	require.NotNil(t, topic)
	topic.Progress = 90
	assert.Equal(t, 90, s.Topics[0].Progress, "returns a pointer into the slice")
	assert.Nil(t, s.Topic(8))
}

func TestEnumsValid(t *testing.T) {
	for _, d := range Difficulties {
		assert.True(t, d.IsValid())
	}
	assert.False(t, Difficulty("extreme").IsValid())
	assert.True(t, PriorityHigh.IsValid())
	assert.False(t, Priority("").IsValid())
	assert.True(t, StatusMissed.IsValid())
	assert.False(t, RevisionStatus("done").IsValid())

	state := NewRevisionState()
	assert.Equal(t, DefaultInterval, state.Interval)
	assert.Equal(t, DefaultEaseFactor, state.EaseFactor)
	assert.Zero(t, state.Repetitions)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, Tags{"exam", "Formula"}, NormalizeTags([]string{" exam ", "", "Formula", "EXAM", "formula"}))
	assert.Equal(t, Tags{}, NormalizeTags(nil))
}

func TestTagsValueScan(t *testing.T) {
	v, err := Tags{"exam", "week 3"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["exam","week 3"]`, v)

	v, err = Tags(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	var tags Tags
	require.NoError(t, tags.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, Tags{"a", "b"}, tags)
	require.NoError(t, tags.Scan(nil))
	assert.Equal(t, Tags{}, tags)
	assert.Error(t, tags.Scan(42))
	assert.Error(t, tags.Scan("not json"))
}
