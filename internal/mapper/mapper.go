package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:         project.ID,
		Name:       project.Name,
		Code:       project.Code,
		ClientName: project.ClientName,
		City:       project.City,
		Country:    project.Country,
		Status:     project.Status,
	}

	if project.StartDate != nil {
		s := project.StartDate.Format(timeLayout)
		dto.StartDate = &s
	}
	if project.EndDate != nil {
		s := project.EndDate.Format(timeLayout)
		dto.EndDate = &s
	}

	if len(project.Buildings) > 0 {
		dto.Buildings = make([]domain.BuildingDTO, len(project.Buildings))
		for i, b := range project.Buildings {
			dto.Buildings[i] = ToBuildingDTO(&b)
		}
	}

	return dto
}

// ToBuildingDTO converts Building to BuildingDTO
func ToBuildingDTO(building *domain.Building) domain.BuildingDTO {
	return domain.BuildingDTO{
		ID:        building.ID,
		ProjectID: building.ProjectID,
		Name:      building.Name,
		Code:      building.Code,
	}
}

// ToTradeDTO converts Trade to TradeDTO
func ToTradeDTO(trade *domain.Trade) domain.TradeDTO {
	return domain.TradeDTO{
		ID:          trade.ID,
		Name:        trade.Name,
		Code:        trade.Code,
		Description: trade.Description,
	}
}

// ToSubcontractorDTO converts Subcontractor to SubcontractorDTO
func ToSubcontractorDTO(sub *domain.Subcontractor) domain.SubcontractorDTO {
	return domain.SubcontractorDTO{
		ID:         sub.ID,
		Name:       sub.Name,
		OrgNumber:  sub.OrgNumber,
		Email:      sub.Email,
		Phone:      sub.Phone,
		Address:    sub.Address,
		City:       sub.City,
		Country:    sub.Country,
		Status:     sub.Status,
		TradeNames: sub.TradeNames,
	}
}

// ToCostCodeDTO converts CostCode to CostCodeDTO
func ToCostCodeDTO(cc *domain.CostCode) domain.CostCodeDTO {
	return domain.CostCodeDTO{
		ID:    cc.ID,
		Code:  cc.Code,
		Label: cc.Label,
	}
}

// ToCurrencyDTO converts Currency to CurrencyDTO
func ToCurrencyDTO(c *domain.Currency) domain.CurrencyDTO {
	return domain.CurrencyDTO{
		ID:     c.ID,
		Code:   c.Code,
		Name:   c.Name,
		Symbol: c.Symbol,
	}
}

// GridFromDraft deserializes the draft's stored BOQ grid.
// An empty payload yields an empty grid, not an error.
func GridFromDraft(draft *domain.WizardDraft) (boq.Grid, error) {
	if draft.BOQData == "" {
		return boq.Grid{}, nil
	}
	var grid boq.Grid
	if err := json.Unmarshal([]byte(draft.BOQData), &grid); err != nil {
		return nil, fmt.Errorf("failed to decode draft BOQ data: %w", err)
	}
	return grid, nil
}

// ToDraftDTO converts WizardDraft to DraftDTO. The grid total is
// recomputed here on every read rather than stored on the draft.
func ToDraftDTO(draft *domain.WizardDraft) (domain.DraftDTO, error) {
	grid, err := GridFromDraft(draft)
	if err != nil {
		return domain.DraftDTO{}, err
	}

	dto := domain.DraftDTO{
		ID:               draft.ID,
		Kind:             draft.Kind,
		CurrentStep:      draft.CurrentStep,
		CompletedSteps:   draft.CompletedSteps,
		ProjectID:        draft.ProjectID,
		ContractID:       draft.ContractID,
		SubcontractorID:  draft.SubcontractorID,
		CurrencyID:       draft.CurrencyID,
		SheetName:        draft.SheetName,
		ContractNumber:   draft.ContractNumber,
		Description:      draft.Description,
		RetentionPercent: draft.RetentionPercent,
		AdvancePercent:   draft.AdvancePercent,
		PaymentTermDays:  draft.PaymentTermDays,
		BuildingIDs:      draft.BuildingIDs,
		BOQData:          grid,
		TotalAmount:      grid.Total(),
		Dirty:            draft.Dirty,
		CreatedAt:        draft.CreatedAt.Format(timeLayout),
		UpdatedAt:        draft.UpdatedAt.Format(timeLayout),
	}

	if dto.CompletedSteps == nil {
		dto.CompletedSteps = []string{}
	}
	if dto.BuildingIDs == nil {
		dto.BuildingIDs = []int64{}
	}
	if draft.StartDate != nil {
		s := draft.StartDate.Format(timeLayout)
		dto.StartDate = &s
	}
	if draft.EndDate != nil {
		s := draft.EndDate.Format(timeLayout)
		dto.EndDate = &s
	}

	return dto, nil
}

// ToContractDTO converts Contract to ContractDTO
func ToContractDTO(contract *domain.Contract) domain.ContractDTO {
	dto := domain.ContractDTO{
		ID:               contract.ID,
		Number:           contract.Number,
		ProjectID:        contract.ProjectID,
		SubcontractorID:  contract.SubcontractorID,
		CurrencyID:       contract.CurrencyID,
		SheetName:        contract.SheetName,
		Description:      contract.Description,
		RetentionPercent: contract.RetentionPercent,
		AdvancePercent:   contract.AdvancePercent,
		PaymentTermDays:  contract.PaymentTermDays,
		TotalAmount:      contract.TotalAmount,
		Status:           contract.Status,
		CreatedAt:        contract.CreatedAt.Format(timeLayout),
		UpdatedAt:        contract.UpdatedAt.Format(timeLayout),
	}

	if contract.Project != nil {
		dto.ProjectName = contract.Project.Name
	}
	if contract.Subcontractor != nil {
		dto.Subcontractor = contract.Subcontractor.Name
	}
	if contract.Currency != nil {
		dto.CurrencyCode = contract.Currency.Code
	}
	if contract.StartDate != nil {
		s := contract.StartDate.Format(timeLayout)
		dto.StartDate = &s
	}
	if contract.EndDate != nil {
		s := contract.EndDate.Format(timeLayout)
		dto.EndDate = &s
	}

	if len(contract.Items) > 0 {
		dto.Items = make([]domain.ContractBOQItemDTO, len(contract.Items))
		for i, item := range contract.Items {
			dto.Items[i] = ToContractBOQItemDTO(&item)
		}
	}

	return dto
}

// ToContractBOQItemDTO converts ContractBOQItem to ContractBOQItemDTO
func ToContractBOQItemDTO(item *domain.ContractBOQItem) domain.ContractBOQItemDTO {
	return domain.ContractBOQItemDTO{
		ID:           item.ID,
		BuildingID:   item.BuildingID,
		BuildingName: item.BuildingName,
		SheetName:    item.SheetName,
		No:           item.No,
		Key:          item.Key,
		CostCode:     item.CostCode,
		CostCodeID:   item.CostCodeID,
		Unite:        item.Unite,
		Qte:          item.Qte,
		Pu:           item.Pu,
		TotalPrice:   item.TotalPrice,
	}
}

// ToVariationOrderDTO converts VariationOrder to VariationOrderDTO
func ToVariationOrderDTO(vo *domain.VariationOrder) domain.VariationOrderDTO {
	dto := domain.VariationOrderDTO{
		ID:          vo.ID,
		Number:      vo.Number,
		ContractID:  vo.ContractID,
		Description: vo.Description,
		Amount:      vo.Amount,
		Status:      vo.Status,
		CreatedAt:   vo.CreatedAt.Format(timeLayout),
		UpdatedAt:   vo.UpdatedAt.Format(timeLayout),
	}

	if len(vo.Items) > 0 {
		dto.Items = make([]domain.ContractBOQItemDTO, len(vo.Items))
		for i, item := range vo.Items {
			dto.Items[i] = domain.ContractBOQItemDTO{
				ID:           item.ID,
				BuildingID:   item.BuildingID,
				BuildingName: item.BuildingName,
				SheetName:    item.SheetName,
				No:           item.No,
				Key:          item.Key,
				CostCode:     item.CostCode,
				CostCodeID:   item.CostCodeID,
				Unite:        item.Unite,
				Qte:          item.Qte,
				Pu:           item.Pu,
				TotalPrice:   item.TotalPrice,
			}
		}
	}

	return dto
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(a *domain.Attachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		DraftID:     a.DraftID,
		ContractID:  a.ContractID,
		CreatedAt:   a.CreatedAt.Format(timeLayout),
	}
}

// ToContractSubmissionDTO serializes a draft and its grid into the
// submission payload. Per-item totals are computed as qte*pu here, and
// each building block is marked to replace all prior items.
func ToContractSubmissionDTO(draft *domain.WizardDraft, grid boq.Grid) domain.ContractSubmissionDTO {
	sub := domain.ContractSubmissionDTO{
		ContractNumber:   draft.ContractNumber,
		SheetName:        draft.SheetName,
		Description:      draft.Description,
		RetentionPercent: draft.RetentionPercent,
		AdvancePercent:   draft.AdvancePercent,
		PaymentTermDays:  draft.PaymentTermDays,
	}

	if draft.ProjectID != nil {
		sub.ProjectID = *draft.ProjectID
	}
	if draft.SubcontractorID != nil {
		sub.SubcontractorID = *draft.SubcontractorID
	}
	if draft.CurrencyID != nil {
		sub.CurrencyID = *draft.CurrencyID
	}
	if draft.StartDate != nil {
		s := draft.StartDate.Format(timeLayout)
		sub.StartDate = &s
	}
	if draft.EndDate != nil {
		s := draft.EndDate.Format(timeLayout)
		sub.EndDate = &s
	}

	sub.Buildings = make([]domain.SubmissionBuildingDTO, 0, len(grid))
	for _, entry := range grid {
		block := domain.SubmissionBuildingDTO{
			BuildingID:      entry.BuildingID,
			SheetName:       entry.SheetName,
			ReplaceAllItems: true,
			BOQsContract:    make([]domain.SubmissionItemDTO, 0, len(entry.Items)),
		}
		for _, item := range entry.Items {
			if item.IsEmpty() {
				continue
			}
			block.BOQsContract = append(block.BOQsContract, ToSubmissionItemDTO(item))
		}
		sub.Buildings = append(sub.Buildings, block)
	}

	return sub
}

// ToSubmissionItemDTO converts one grid item into its submission shape
func ToSubmissionItemDTO(item boq.Item) domain.SubmissionItemDTO {
	dto := domain.SubmissionItemDTO{
		ID:         item.ID,
		No:         item.No,
		Key:        item.Key,
		Unite:      item.Unite,
		Qte:        item.Qte,
		Pu:         item.Pu,
		CostCode:   item.CostCode,
		TotalPrice: item.Total(),
	}
	if item.CostCodeID != 0 {
		id := item.CostCodeID
		dto.CostCodeID = &id
	}
	return dto
}
