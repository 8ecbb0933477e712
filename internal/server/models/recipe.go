package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Ingredient struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Step is one instruction of a recipe; Order starts at 1.
type Step struct {
	ID          string  `json:"id,omitempty"`
	Order       int     `json:"order"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// Author is the public part of the user who wrote a recipe.
type Author struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ThumbnailURL *string      `json:"thumbnailUrl"`
	CookingTime  int          `json:"cookingTime"`
	Servings     int          `json:"servings"`
	Difficulty   Difficulty   `json:"difficulty"`
	CategoryID   *string      `json:"categoryId"`
	AuthorID     string       `json:"authorId"`
	Author       Author       `json:"author"`
	Category     *Category    `json:"category"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	Steps        []Step       `json:"steps,omitempty"`
	LikesCount   int          `json:"likesCount"`
	IsLiked      bool         `json:"isLiked"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
