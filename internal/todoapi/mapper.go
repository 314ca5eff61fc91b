package todoapi

import "github.com/mmcdole/todos/internal/domain"

// MapTodo converts a wire todo into the domain type
func MapTodo(dto todoDTO) domain.Todo {
	id := string(dto.MongoID)
	if id == "" {
		id = string(dto.ID)
	}
	return domain.Todo{
		ID:        id,
		Body:      dto.Body,
		Completed: dto.Completed,
	}
}

// MapTodos converts a wire collection, dropping records without an id
func MapTodos(dtos []todoDTO) []domain.Todo {
	todos := make([]domain.Todo, 0, len(dtos))
	for _, dto := range dtos {
		t := MapTodo(dto)
		if t.ID == "" {
			continue
		}
		todos = append(todos, t)
	}
	return todos
}

func toUpdateRequest(p domain.Patch) updateRequest {
	return updateRequest{Body: p.Body, Completed: p.Completed}
}
