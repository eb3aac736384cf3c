package controllers

import (
	"net/http"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Lists the game titles in the catalog
// @Description Returns every title with its maps, for building roll filters client-side
// @Tags catalog
// @Produce json
// @Success 200 {array} object{id=integer,name=string}
// @Failure 500 {object} object{error=string}
// @Router /catalog/titles [get]
func GetTitles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var titles []models.GameTitle
		if err := db.Preload("Maps").Find(&titles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching titles"})
			return
		}

		out := make([]gin.H, len(titles))
		for i, title := range titles {
			maps := make([]gin.H, len(title.Maps))
			for j, m := range title.Maps {
				maps[j] = gin.H{
					"id":             m.ID,
					"name":           m.Name,
					"has_first_room": m.HasFirstRoom,
				}
			}
			out[i] = gin.H{
				"id":                     title.ID,
				"name":                   title.Name,
				"has_alternate_currency": title.HasAlternateCurrency,
				"starting_loadouts":      title.StartingLoadouts.Data(),
				"maps":                   maps,
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Lists active challenges
// @Description Optionally narrowed to one title via the title_id query parameter
// @Tags catalog
// @Produce json
// @Param title_id query integer false "Restrict to one title"
// @Success 200 {array} object{id=integer,name=string}
// @Failure 500 {object} object{error=string}
// @Router /catalog/challenges [get]
func GetChallenges(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("active = ?", true)
		if titleID := c.Query("title_id"); titleID != "" {
			query = query.Where("title_id = ?", titleID)
		}

		var challenges []models.Challenge
		if err := query.Find(&challenges).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching challenges"})
			return
		}

		out := make([]gin.H, len(challenges))
		for i, ch := range challenges {
			out[i] = gin.H{
				"id":                     ch.ID,
				"title_id":               ch.TitleID,
				"map_id":                 ch.MapID,
				"name":                   ch.Name,
				"is_speedrun":            ch.IsSpeedrun,
				"min_round":              ch.MinRound,
				"supports_cursed_relics": ch.SupportsCursedRelics,
			}
		}
		c.JSON(http.StatusOK, out)
	}
}
