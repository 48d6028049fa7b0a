package bootstrap

import (
	"testing"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/config"
	"github.com/LJTian/DistrictNews/internal/scheduler"
	"github.com/stretchr/testify/assert"
)

func TestArchiveTargetsNormalizesAndSkipsUnknown(t *testing.T) {
	cfg := &config.Config{
		ArchiveDistricts:  []string{"mysuru", "Atlantis", "KARNATAKA"},
		ArchiveCategories: []string{"general", "Weather"},
	}

	assert.Equal(t, []scheduler.Target{
		{District: "Mysuru", Category: article.CategoryGeneral},
		{District: article.AllDistricts, Category: article.CategoryGeneral},
	}, ArchiveTargets(cfg))
}

func TestArchiveTargetsEmptyWhenNothingValid(t *testing.T) {
	cfg := &config.Config{ArchiveDistricts: []string{"Atlantis"}, ArchiveCategories: []string{"Trending"}}
	assert.Empty(t, ArchiveTargets(cfg))
}
