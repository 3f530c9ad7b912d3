package taskclient

import (
	"github.com/chepyr/go-task-board/internal/models"
)

// Views are recomputed from the cache on every call and returned as copies.

func (c *Client) Tasks() []models.Task {
	return c.filter(func(models.Task) bool { return true })
}

func (c *Client) NotStarted() []models.Task {
	return c.ByStatus(models.StatusNotStarted)
}

func (c *Client) InProgress() []models.Task {
	return c.ByStatus(models.StatusWIP)
}

func (c *Client) Completed() []models.Task {
	return c.ByStatus(models.StatusCompleted)
}

func (c *Client) ByStatus(status models.Status) []models.Task {
	return c.filter(func(t models.Task) bool { return t.Status == status })
}

// Active is the to-do list: every task that is not completed, in cache order.
func (c *Client) Active() []models.Task {
	return c.filter(func(t models.Task) bool { return !t.Completed() })
}

func (c *Client) Counts() map[models.Status]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[models.Status]int, len(models.AllowedStatuses))
	for _, s := range models.AllowedStatuses {
		counts[s] = 0
	}
	for _, t := range c.tasks {
		counts[t.Status]++
	}
	return counts
}

func (c *Client) filter(keep func(models.Task) bool) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []models.Task{}
	for _, t := range c.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
