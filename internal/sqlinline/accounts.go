package sqlinline

const QSelectAccountByID = `--sql 3f6c2d1a-84b5-4f0e-9c27-51a9e0b7d2c4
select id, email, display_name, plan, usage_count, coalesce(last_usage_date, ''),
       coalesce(upgrade_code, ''), upgraded_at, created_at, updated_at
from accounts
where id = $1::text
limit 1;
`

const QUpsertAccount = `--sql 7b1e9f3c-2d64-4a8b-b0c5-8e2f47a1d906
insert into accounts (id, email, display_name, plan, usage_count, created_at, updated_at)
values ($1::text, $2::text, $3::text, 'free', 0, now(), now())
on conflict (id) do update set
    email = excluded.email,
    display_name = excluded.display_name,
    updated_at = now()
returning id, email, display_name, plan, usage_count, coalesce(last_usage_date, ''),
          coalesce(upgrade_code, ''), upgraded_at, created_at, updated_at;
`

const QUpdateAccountUsage = `--sql c94a7e52-10db-4b3f-ae68-f352c8d90b17
update accounts
set usage_count = $2::int,
    last_usage_date = $3::text,
    updated_at = now()
where id = $1::text;
`

const QUpgradeAccountPlan = `--sql 5d28b6f0-97ce-4c41-8b3a-0e6d14f9a273
update accounts
set plan = 'pro',
    upgrade_code = $2::text,
    upgraded_at = $3::timestamptz,
    updated_at = now()
where id = $1::text
returning id, email, display_name, plan, usage_count, coalesce(last_usage_date, ''),
          coalesce(upgrade_code, ''), upgraded_at, created_at, updated_at;
`

const QSelectAccountByEmail = `--sql 6e02a9d7-5c31-4f8b-a4d0-92c7e8b15f36
select id, email, display_name, plan, usage_count, coalesce(last_usage_date, ''),
       coalesce(upgrade_code, ''), upgraded_at, created_at, updated_at
from accounts
where email = $1::text
limit 1;
`

const QSetAccountPlan = `--sql 48d1c7b3-e906-4a52-bf84-d07a36e92c18
update accounts
set plan = $2::text,
    usage_count = case when $3::bool then usage_count else 0 end,
    updated_at = now()
where id = $1::text
returning id, email, plan, usage_count;
`
