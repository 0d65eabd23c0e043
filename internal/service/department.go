package service

import (
	"context"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
)

const departmentPageSize = 500

type DepartmentService struct {
	objects *ObjectService
}

func NewDepartmentService(objects *ObjectService) *DepartmentService {
	return &DepartmentService{objects: objects}
}

// List returns the practice's active departments ordered by name. With a
// location, only the departments linked to that location are returned, in
// link order.
func (s *DepartmentService) List(ctx context.Context, practiceID uuid.UUID, locationID *uuid.UUID) ([]domain.Department, error) {
	var objects []*domain.Object
	if locationID != nil {
		targets, err := s.objects.Targets(ctx, practiceID, domain.ArchetypeLocation, *locationID, "departments", domain.ArchetypeDepartment)
		if err != nil {
			return nil, err
		}
		objects = targets
	} else {
		for offset := 0; ; offset += departmentPageSize {
			page, err := s.objects.List(ctx, practiceID, domain.ObjectFilter{
				ShortName:  domain.ArchetypeDepartment,
				ActiveOnly: true,
				Limit:      departmentPageSize,
				Offset:     offset,
			})
			if err != nil {
				return nil, err
			}
			for i := range page {
				objects = append(objects, &page[i])
			}
			if len(page) < departmentPageSize {
				break
			}
		}
	}

	out := make([]domain.Department, 0, len(objects))
	for _, o := range objects {
		if !o.Active {
			continue
		}
		out = append(out, domain.DepartmentFromObject(o))
	}
	return out, nil
}
