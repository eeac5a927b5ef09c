package sqlinline

const QInsertUpgradeCode = `--sql a1d4f82b-63c9-47e0-95b2-7c08e3d6f514
insert into upgrade_codes (code, created_at)
values ($1::text, now());
`

const QRedeemUpgradeCode = `--sql e87b20c5-4f16-4d9a-b3e8-291a6d05c7f3
update upgrade_codes
set used_by = $2::text,
    used_at = now()
where code = $1::text
  and used_at is null
returning code;
`

const QSelectUpgradeCode = `--sql 09c5e671-d2a8-4b04-8f97-63b1f4e82da5
select code, used_at is not null
from upgrade_codes
where code = $1::text
limit 1;
`
